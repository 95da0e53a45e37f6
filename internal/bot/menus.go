package bot

import (
	"strconv"
	"strings"

	"github.com/m3rciful/salonbot/core/telegram/callbacks"
	"github.com/m3rciful/salonbot/internal/reviews"
	"github.com/m3rciful/salonbot/internal/session"
)

// Menus shown in a chat.
const (
	MenuRoleSelect         session.Menu = "role_select"
	MenuMasterAuth         session.Menu = "master_auth"
	MenuClient             session.Menu = "client"
	MenuReviewRating       session.Menu = "review_rating"
	MenuReviewText         session.Menu = "review_text"
	MenuMaster             session.Menu = "master"
	MenuUploadPrice        session.Menu = "upload_price"
	MenuUploadAvailability session.Menu = "upload_availability"
	MenuReviews            session.Menu = "reviews"
	MenuConfirmClear       session.Menu = "confirm_clear"
)

// requiredRole returns the role a menu belongs to.
func requiredRole(m session.Menu) session.Role {
	switch m {
	case MenuClient, MenuReviewRating, MenuReviewText:
		return session.RoleClient
	case MenuMaster, MenuUploadPrice, MenuUploadAvailability, MenuReviews, MenuConfirmClear:
		return session.RoleMaster
	}
	return session.RoleUnset
}

func replyKeyboard(rows ...[]string) *Keyboard {
	return &Keyboard{Reply: rows}
}

var (
	roleSelectKeyboard = replyKeyboard([]string{LabelClient, LabelMaster})
	clientKeyboard     = replyKeyboard(
		[]string{LabelPrice},
		[]string{LabelSlots},
		[]string{LabelBook},
		[]string{LabelLeaveReview},
		[]string{LabelChangeRole},
	)
	cancelKeyboard = replyKeyboard([]string{LabelCancel})
	masterKeyboard = replyKeyboard(
		[]string{LabelSetPrice},
		[]string{LabelUpdateSlots},
		[]string{LabelCurrentAssets},
		[]string{LabelReviews},
		[]string{LabelChangeRole},
	)
	backToMasterKeyboard = replyKeyboard([]string{LabelBackToMaster})
	reviewsKeyboard      = replyKeyboard(
		[]string{LabelStats, LabelAllReviews},
		[]string{LabelDeleteAll},
		[]string{LabelBackToMaster},
	)
	confirmClearKeyboard = replyKeyboard([]string{LabelConfirmClear, LabelCancelClear})
	removeKeyboard       = &Keyboard{Remove: true}
)

// keyboardFor returns the reply keyboard of menu.
func keyboardFor(m session.Menu) *Keyboard {
	switch m {
	case MenuClient:
		return clientKeyboard
	case MenuReviewRating, MenuReviewText:
		return cancelKeyboard
	case MenuMaster:
		return masterKeyboard
	case MenuUploadPrice, MenuUploadAvailability:
		return backToMasterKeyboard
	case MenuReviews:
		return reviewsKeyboard
	case MenuConfirmClear:
		return confirmClearKeyboard
	case MenuMasterAuth:
		return removeKeyboard
	}
	return roleSelectKeyboard
}

// ratingKeyboard is the inline 1..5 star choice.
func ratingKeyboard() *Keyboard {
	row := make([]InlineButton, 0, 5)
	for r := reviews.MinRating; r <= reviews.MaxRating; r++ {
		row = append(row, InlineButton{
			Text: strings.Repeat("⭐", r),
			Data: callbacks.Join(CallbackRating, strconv.Itoa(r)),
		})
	}
	return &Keyboard{Inline: [][]InlineButton{row}}
}

// parseRating extracts N from "rating|N".
func parseRating(data string) (int, bool) {
	key, payload := callbacks.Split(data)
	if key != CallbackRating {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil || !reviews.ValidRating(n) {
		return 0, false
	}
	return n, true
}
