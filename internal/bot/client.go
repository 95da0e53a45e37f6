package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/salonbot/core/logger"
	"github.com/m3rciful/salonbot/internal/assets"
	"github.com/m3rciful/salonbot/internal/metrics"
	"github.com/m3rciful/salonbot/internal/reviews"
	"github.com/m3rciful/salonbot/internal/session"
)

func (t *turn) showClientMenu() error {
	return t.show(MenuClient, textChooseAction, false)
}

func (t *turn) enterClient() error {
	if err := t.sessions().SetRole(t.ctx, t.ev.ChatID, session.RoleClient); err != nil {
		return err
	}
	if err := t.sendAsset(assets.Welcome, textWelcome, ""); err != nil {
		return err
	}
	return t.showClientMenu()
}

// sendAsset sends the named image with caption. When nothing was uploaded yet
// missing is sent instead; an empty missing falls back to the caption alone.
func (t *turn) sendAsset(name, caption, missing string) error {
	data, asset, err := t.r.deps.Assets.Get(t.ctx, name)
	metrics.ObserveStore("assets", "get", ignoreNotFound(err))
	switch {
	case errors.Is(err, assets.ErrNotFound):
		if missing == "" {
			missing = caption
		}
		return t.sendText(missing)
	case err != nil:
		logger.LogEvent(t.ctx, logger.App, slog.LevelError, "asset.load",
			slog.String("asset", name),
			slog.Any("err", err),
		)
		return t.sendText(textImageFailed)
	}
	return t.send(Message{Text: caption, Image: &Image{Name: asset.FileName(), Data: data}})
}

func ignoreNotFound(err error) error {
	if errors.Is(err, assets.ErrNotFound) {
		return nil
	}
	return err
}

func (t *turn) showPrice() error {
	if err := t.sendAsset(assets.Price, "", textPriceMissing); err != nil {
		return err
	}
	return t.showClientMenu()
}

func (t *turn) showSlots() error {
	if err := t.sendAsset(assets.Availability, textSlotsCaption, textSlotsMissing); err != nil {
		return err
	}
	return t.showClientMenu()
}

func (t *turn) showContact() error {
	contact := t.r.deps.Contact
	if contact == "" {
		contact = textNoContact
	}
	if err := t.sendText(fmt.Sprintf(textContact, contact)); err != nil {
		return err
	}
	return t.showClientMenu()
}

func (t *turn) requestRating() error {
	if err := t.show(MenuReviewRating, textRatePrompt, false); err != nil {
		return err
	}
	return t.send(Message{Text: textRateChoose, Keyboard: ratingKeyboard()})
}

func (t *turn) cancelReview() error {
	return t.showClientMenu()
}

func (t *turn) chooseRating(rating int) error {
	p := session.Pending{Tag: session.TagReviewText, Rating: rating}
	if err := t.sessions().SetPending(t.ctx, t.ev.UserID, p); err != nil {
		return err
	}
	return t.show(MenuReviewText, fmt.Sprintf(textRated, rating), false)
}

func (t *turn) saveReview(rating int, text string) error {
	saved, err := t.r.deps.Reviews.Append(t.ctx, reviews.Review{
		UserID:   t.ev.UserID,
		UserName: t.ev.DisplayName,
		Rating:   rating,
		Text:     text,
	})
	metrics.ObserveStore("reviews", "append", err)
	if err != nil {
		logger.LogEvent(t.ctx, logger.App, slog.LevelError, "review.save",
			slog.Int("rating", rating),
			slog.Any("err", err),
		)
		if !errors.Is(err, reviews.ErrInvalidRating) {
			if err := t.sendText(textReviewFailed); err != nil {
				return err
			}
		}
		return t.showClientMenu()
	}
	if err := t.send(Message{Text: fmt.Sprintf(textReviewThanks, saved.Rating), Keyboard: removeKeyboard}); err != nil {
		return err
	}
	return t.showClientMenu()
}
