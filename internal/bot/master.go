package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/salonbot/core/logger"
	"github.com/m3rciful/salonbot/core/telegram/format"
	"github.com/m3rciful/salonbot/internal/assets"
	"github.com/m3rciful/salonbot/internal/metrics"
	"github.com/m3rciful/salonbot/internal/reviews"
	"github.com/m3rciful/salonbot/internal/session"
)

func (t *turn) requestSecret() error {
	p := session.Pending{Tag: session.TagMasterSecret}
	if err := t.sessions().SetPending(t.ctx, t.ev.UserID, p); err != nil {
		return err
	}
	return t.show(MenuMasterAuth, textAuthPrompt, false)
}

// checkSecret grants the master role on a match. A mismatch leaves the role
// unchanged and returns to role selection.
func (t *turn) checkSecret(input string) error {
	if !t.r.deps.Auth.Check(input) {
		logger.LogEvent(t.ctx, logger.App, slog.LevelWarn, "auth.master", slog.String("outcome", "fail"))
		if err := t.sendText(textAuthFailed); err != nil {
			return err
		}
		return t.show(MenuRoleSelect, textChooseRole, false)
	}
	if err := t.sessions().SetRole(t.ctx, t.ev.ChatID, session.RoleMaster); err != nil {
		return err
	}
	logger.LogEvent(t.ctx, logger.App, slog.LevelInfo, "auth.master", slog.String("outcome", "ok"))
	if err := t.sendText(textAuthOK); err != nil {
		return err
	}
	return t.showMasterMenu()
}

func (t *turn) showMasterMenu() error {
	return t.show(MenuMaster, textChooseAction, false)
}

func (t *turn) requestPriceUpload() error {
	return t.requestUpload(session.TagUploadPrice, MenuUploadPrice, textUploadPrice)
}

func (t *turn) requestSlotsUpload() error {
	return t.requestUpload(session.TagUploadAvailability, MenuUploadAvailability, textUploadSlots)
}

func (t *turn) requestUpload(tag session.Tag, menu session.Menu, prompt string) error {
	if err := t.sessions().SetPending(t.ctx, t.ev.UserID, session.Pending{Tag: tag}); err != nil {
		return err
	}
	return t.show(menu, prompt, false)
}

// upload stores the best photo variant under name. Every outcome ends in the
// master menu.
func (t *turn) upload(name, done string) error {
	variant, ok := BestPhoto(t.ev.Photos)
	if !ok {
		if err := t.sendText(textSendPhoto); err != nil {
			return err
		}
		return t.showMasterMenu()
	}

	data, kind, err := t.tr.Fetch(t.ctx, variant)
	if err != nil {
		ferr := &TransportError{Op: "fetch", Err: err}
		logger.LogEvent(t.ctx, logger.App, slog.LevelError, "upload.fetch",
			slog.String("asset", name),
			slog.String("err_code", ferr.Code()),
			slog.Any("err", ferr),
		)
		if err := t.sendText(textFetchFailed); err != nil {
			return err
		}
		return t.showMasterMenu()
	}
	if kind == "" {
		kind = variant.MIME
	}

	_, err = t.r.deps.Assets.Put(t.ctx, name, data, kind, t.ev.UserID)
	metrics.ObserveStore("assets", "put", err)
	if err != nil {
		if err := t.sendText(fmt.Sprintf(textUploadFailed, err)); err != nil {
			return err
		}
		return t.showMasterMenu()
	}
	if err := t.sendText(done); err != nil {
		return err
	}
	return t.showMasterMenu()
}

func (t *turn) showCurrentAssets() error {
	if err := t.sendAsset(assets.Availability, textCurrentSlots, fmt.Sprintf(textAssetNotSetYet, textCurrentSlots)); err != nil {
		return err
	}
	if err := t.sendAsset(assets.Price, textCurrentPrice, fmt.Sprintf(textAssetNotSetYet, textCurrentPrice)); err != nil {
		return err
	}
	return t.showMasterMenu()
}

func (t *turn) showReviewsMenu() error {
	st := t.r.deps.Reviews.Stats(t.ctx)
	text := textNoReviews
	if st.HasAverage {
		text = fmt.Sprintf(textReviewsSummary, st.Count, st.Average.StringFixed(1))
	}
	return t.show(MenuReviews, text, false)
}

func (t *turn) showStats() error {
	st := t.r.deps.Reviews.Stats(t.ctx)
	if st.Count == 0 {
		if err := t.sendText(textNoReviewsShort); err != nil {
			return err
		}
		return t.showReviewsMenu()
	}
	if err := t.send(Message{Text: statsText(st), Markdown: true}); err != nil {
		return err
	}
	return t.showReviewsMenu()
}

func statsText(st reviews.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, textStatsHeader, st.Count)
	if st.HasAverage {
		fmt.Fprintf(&b, textStatsAvg, st.Average.StringFixed(1))
		for r := reviews.MaxRating; r >= reviews.MinRating; r-- {
			fmt.Fprintf(&b, textStatsRow, strings.Repeat("⭐", r), st.Histogram[r], st.Percent(r).StringFixed(1))
		}
	}
	return b.String()
}

func (t *turn) listReviews() error {
	items := t.r.deps.Reviews.List(t.ctx)
	if len(items) == 0 {
		if err := t.sendText(textNoReviewsShort); err != nil {
			return err
		}
		return t.showReviewsMenu()
	}
	for i := len(items) - 1; i >= 0; i-- {
		if err := t.send(Message{Text: reviewText(len(items)-i, items[i]), Markdown: true}); err != nil {
			return err
		}
	}
	return t.showReviewsMenu()
}

func reviewText(n int, r reviews.Review) string {
	name := r.UserName
	if strings.TrimSpace(name) == "" {
		name = textAnonymous
	}
	date := r.Date
	if date == "" {
		date = textUnknownDate
	}
	return fmt.Sprintf(textReviewItem, n, r.Rating,
		format.Escape(r.Text), format.Escape(name), format.Escape(date))
}

func (t *turn) requestClear() error {
	st := t.r.deps.Reviews.Stats(t.ctx)
	if st.Count == 0 {
		if err := t.sendText(textNothingToDelete); err != nil {
			return err
		}
		return t.showReviewsMenu()
	}
	return t.show(MenuConfirmClear, fmt.Sprintf(textConfirmClear, st.Count), true)
}

func (t *turn) confirmClear() error {
	backup, err := t.r.deps.Reviews.ClearWithBackup(t.ctx)
	metrics.ObserveStore("reviews", "clear", err)
	switch {
	case errors.Is(err, reviews.ErrBackupFailed):
		if err := t.sendText(textBackupFailed); err != nil {
			return err
		}
	case err != nil:
		if err := t.sendText(textClearFailed); err != nil {
			return err
		}
	default:
		if err := t.send(Message{Text: fmt.Sprintf(textCleared, backup.Count, backup.Path), Keyboard: removeKeyboard}); err != nil {
			return err
		}
	}
	return t.showReviewsMenu()
}

func (t *turn) cancelClear() error {
	if err := t.send(Message{Text: textClearAborted, Keyboard: removeKeyboard}); err != nil {
		return err
	}
	return t.showReviewsMenu()
}
