package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/salonbot/core/logger"
	"github.com/m3rciful/salonbot/internal/assets"
	"github.com/m3rciful/salonbot/internal/reviews"
	"github.com/m3rciful/salonbot/internal/session"
)

// AssetStore is the part of assets.Store the router uses.
type AssetStore interface {
	Put(ctx context.Context, name string, data []byte, kind string, setBy int64) (assets.Asset, error)
	Get(ctx context.Context, name string) ([]byte, assets.Asset, error)
}

// ReviewStore is the part of reviews.Store the router uses.
type ReviewStore interface {
	Append(ctx context.Context, r reviews.Review) (reviews.Review, error)
	List(ctx context.Context) []reviews.Review
	Stats(ctx context.Context) reviews.Stats
	ClearWithBackup(ctx context.Context) (reviews.Backup, error)
}

// Authenticator checks the master secret.
type Authenticator interface {
	Check(input string) bool
}

// Deps are the collaborators of a Router.
type Deps struct {
	Assets   AssetStore
	Reviews  ReviewStore
	Sessions session.Store
	Auth     Authenticator
	// Contact is shown to clients who want to book.
	Contact string
}

type action func(*turn) error

// Router resolves events against session state and drives the menus.
type Router struct {
	deps    Deps
	locks   *chatLocks
	actions map[session.Menu]map[string]action
}

// New returns a Router. Every dependency except Contact is required.
func New(deps Deps) (*Router, error) {
	switch {
	case deps.Assets == nil:
		return nil, errors.New("bot: asset store is required")
	case deps.Reviews == nil:
		return nil, errors.New("bot: review store is required")
	case deps.Sessions == nil:
		return nil, errors.New("bot: session store is required")
	case deps.Auth == nil:
		return nil, errors.New("bot: authenticator is required")
	}
	deps.Contact = strings.TrimSpace(deps.Contact)
	return &Router{deps: deps, locks: newChatLocks(), actions: buildActions()}, nil
}

func buildActions() map[session.Menu]map[string]action {
	return map[session.Menu]map[string]action{
		MenuRoleSelect: {
			LabelClient: (*turn).enterClient,
			LabelMaster: (*turn).requestSecret,
		},
		MenuClient: {
			LabelPrice:       (*turn).showPrice,
			LabelSlots:       (*turn).showSlots,
			LabelBook:        (*turn).showContact,
			LabelLeaveReview: (*turn).requestRating,
		},
		MenuReviewRating: {LabelCancel: (*turn).cancelReview},
		MenuReviewText:   {LabelCancel: (*turn).cancelReview},
		MenuMaster: {
			LabelSetPrice:      (*turn).requestPriceUpload,
			LabelUpdateSlots:   (*turn).requestSlotsUpload,
			LabelCurrentAssets: (*turn).showCurrentAssets,
			LabelReviews:       (*turn).showReviewsMenu,
		},
		MenuUploadPrice:        {LabelBackToMaster: (*turn).showMasterMenu},
		MenuUploadAvailability: {LabelBackToMaster: (*turn).showMasterMenu},
		MenuReviews: {
			LabelStats:        (*turn).showStats,
			LabelAllReviews:   (*turn).listReviews,
			LabelDeleteAll:    (*turn).requestClear,
			LabelBackToMaster: (*turn).showMasterMenu,
		},
		MenuConfirmClear: {
			LabelConfirmClear: (*turn).confirmClear,
			LabelCancelClear:  (*turn).cancelClear,
		},
	}
}

// Handle processes one event. Events of the same chat never run concurrently.
// A failed send is answered with one apology and reported as *TransportError.
func (r *Router) Handle(ctx context.Context, tr Transport, ev Event) error {
	if tr == nil {
		return errors.New("bot: nil transport")
	}
	unlock := r.locks.lock(ev.ChatID)
	defer unlock()

	t := &turn{r: r, ctx: ctx, tr: tr, ev: ev}
	var err error
	switch ev.Kind {
	case KindText:
		err = t.onText()
	case KindPhoto:
		err = t.onPhoto()
	case KindCallback:
		err = t.onCallback()
	default:
		err = fmt.Errorf("bot: unsupported event kind %q", ev.Kind)
	}
	if err == nil {
		return nil
	}

	logger.LogEvent(ctx, logger.App, slog.LevelError, "router.failed",
		slog.String("kind", string(ev.Kind)),
		slog.Any("err", err),
	)
	if sendErr := tr.Send(ctx, ev.ChatID, Message{Text: textApology}); sendErr != nil {
		logger.LogEvent(ctx, logger.App, slog.LevelWarn, "router.apology",
			slog.String("outcome", "fail"),
			slog.Any("err", sendErr),
		)
	}
	return err
}

// turn carries the state of a single Handle call.
type turn struct {
	r   *Router
	ctx context.Context
	tr  Transport
	ev  Event
}

func (t *turn) sessions() session.Store { return t.r.deps.Sessions }

func (t *turn) send(msg Message) error {
	if err := t.tr.Send(t.ctx, t.ev.ChatID, msg); err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return err
		}
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func (t *turn) sendText(text string) error {
	return t.send(Message{Text: text})
}

// show records menu as current and sends text with its keyboard.
func (t *turn) show(menu session.Menu, text string, markdown bool) error {
	if err := t.sessions().SetMenu(t.ctx, t.ev.ChatID, menu); err != nil {
		return err
	}
	logger.LogEvent(t.ctx, logger.App, slog.LevelDebug, "router.menu", slog.String("menu", string(menu)))
	return t.send(Message{Text: text, Keyboard: keyboardFor(menu), Markdown: markdown})
}

// currentMenu returns the stored menu, falling back to role select when the
// menu does not belong to the stored role.
func (t *turn) currentMenu() (session.Menu, session.Role, error) {
	role, err := t.sessions().Role(t.ctx, t.ev.ChatID)
	if err != nil {
		return "", "", err
	}
	menu, err := t.sessions().Menu(t.ctx, t.ev.ChatID)
	if err != nil {
		return "", "", err
	}
	if menu == "" || requiredRole(menu) != session.RoleUnset && requiredRole(menu) != role {
		menu = MenuRoleSelect
	}
	return menu, role, nil
}

func (t *turn) reset() error {
	if err := t.sessions().SetRole(t.ctx, t.ev.ChatID, session.RoleUnset); err != nil {
		return err
	}
	if err := t.sessions().ClearPending(t.ctx, t.ev.UserID); err != nil {
		return err
	}
	return t.show(MenuRoleSelect, textChooseRole, false)
}

func (t *turn) onText() error {
	text := strings.TrimSpace(t.ev.Text)
	if text == CommandStart || text == LabelChangeRole {
		return t.reset()
	}

	menu, role, err := t.currentMenu()
	if err != nil {
		return err
	}
	if act, ok := t.r.actions[menu][text]; ok {
		if err := t.sessions().ClearPending(t.ctx, t.ev.UserID); err != nil {
			return err
		}
		return act(t)
	}

	p, ok, err := t.sessions().TakePending(t.ctx, t.ev.UserID)
	if err != nil {
		return err
	}
	if ok {
		return t.continueText(p, role)
	}
	return t.fallback(menu)
}

func (t *turn) continueText(p session.Pending, role session.Role) error {
	switch p.Tag {
	case session.TagReviewText:
		if role != session.RoleClient {
			return t.fallbackRole(role)
		}
		return t.saveReview(p.Rating, t.ev.Text)
	case session.TagMasterSecret:
		return t.checkSecret(t.ev.Text)
	case session.TagUploadPrice, session.TagUploadAvailability:
		if role != session.RoleMaster {
			return t.reset()
		}
		if err := t.sendText(textSendPhoto); err != nil {
			return err
		}
		return t.showMasterMenu()
	}
	return t.fallbackRole(role)
}

// fallback re-displays menu. Review menus without a pending rating lead back
// to the client menu, abandoned master prompts to their parent menu.
func (t *turn) fallback(menu session.Menu) error {
	switch menu {
	case MenuClient, MenuReviewRating, MenuReviewText:
		return t.showClientMenu()
	case MenuMaster, MenuUploadPrice, MenuUploadAvailability:
		return t.showMasterMenu()
	case MenuReviews:
		return t.showReviewsMenu()
	case MenuConfirmClear:
		return t.requestClear()
	}
	return t.show(MenuRoleSelect, textChooseRole, false)
}

func (t *turn) fallbackRole(role session.Role) error {
	switch role {
	case session.RoleClient:
		return t.showClientMenu()
	case session.RoleMaster:
		return t.showMasterMenu()
	}
	return t.show(MenuRoleSelect, textChooseRole, false)
}

func (t *turn) onPhoto() error {
	menu, role, err := t.currentMenu()
	if err != nil {
		return err
	}
	p, ok, err := t.sessions().TakePending(t.ctx, t.ev.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return t.fallback(menu)
	}
	switch p.Tag {
	case session.TagUploadPrice:
		if role != session.RoleMaster {
			return t.reset()
		}
		return t.upload(assets.Price, textPriceUpdated)
	case session.TagUploadAvailability:
		if role != session.RoleMaster {
			return t.reset()
		}
		return t.upload(assets.Availability, textSlotsUpdated)
	case session.TagReviewText:
		if err := t.sessions().SetPending(t.ctx, t.ev.UserID, p); err != nil {
			return err
		}
		return t.sendText(textReviewPrompt)
	case session.TagMasterSecret:
		return t.checkSecret("")
	}
	return t.fallback(menu)
}

func (t *turn) onCallback() error {
	rating, ok := parseRating(t.ev.CallbackData)
	menu, role, err := t.currentMenu()
	if err != nil {
		return err
	}
	if !ok || role != session.RoleClient {
		return t.fallback(menu)
	}
	return t.chooseRating(rating)
}
