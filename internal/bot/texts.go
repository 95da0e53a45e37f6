package bot

// Button labels. Text events are matched against them exactly.
const (
	LabelClient = "Client"
	LabelMaster = "Master"

	LabelPrice       = "💸 Price list"
	LabelSlots       = "📅 Free slots"
	LabelBook        = "✍️ Book a visit"
	LabelLeaveReview = "⭐️ Leave a review"
	LabelChangeRole  = "🔙 Change role"
	LabelCancel      = "🏠 Cancel"

	LabelSetPrice      = "💸 Set price list"
	LabelUpdateSlots   = "✍️ Update free slots"
	LabelCurrentAssets = "📅 Current slots and price"
	LabelReviews       = "⭐️ Reviews"
	LabelBackToMaster  = "🏠 Back to master menu"

	LabelStats      = "📊 Review statistics"
	LabelAllReviews = "📝 All reviews"
	LabelDeleteAll  = "🗑️ Delete all reviews"

	LabelConfirmClear = "✅ Yes, delete all"
	LabelCancelClear  = "❌ No, cancel"
)

// CommandStart resets the conversation.
const CommandStart = "/start"

// CallbackRating is the key of rating buttons: "rating|<1..5>".
const CallbackRating = "rating"

const (
	textChooseRole   = "Hello! Please choose your role."
	textChooseAction = "Choose an action"
	textWelcome      = "Welcome!"

	textAuthPrompt = "Please sign in: send the master password."
	textAuthOK     = "✅ Signed in"
	textAuthFailed = "❌ Authorization failed"

	textPriceMissing = "💸 The price list has not been published yet."
	textSlotsMissing = "📅 Free slots have not been published yet."
	textSlotsCaption = "The information may be out of date, please confirm when booking."
	textImageFailed  = "❌ Could not load the image, please try again later."
	textContact      = "Here are the master's contacts for booking ☺️: %s"
	textNoContact    = "Contacts are not configured"

	textRatePrompt   = "📝 Rate the master's work from 1 to 5 stars:"
	textRateChoose   = "Choose a rating:"
	textRated        = "✅ You rated %d ⭐\n\nNow write your review:"
	textReviewPrompt = "💬 Your review as text, please:"
	textReviewThanks = "✅ Thank you for your review (%d⭐)! It means a lot to us!"
	textReviewFailed = "❌ Could not save your review, please try again later."

	textUploadPrice     = "Send a photo of the price list or go back to the master menu"
	textUploadSlots     = "Send a photo with the updated free slots or go back to the master menu"
	textSendPhoto       = "❌ Please send a photo."
	textPriceUpdated    = "✅ Price list updated"
	textSlotsUpdated    = "✅ Free slots updated"
	textUploadFailed    = "❌ Error while saving the photo: %s"
	textFetchFailed     = "❌ Could not download the photo, please try again."
	textCurrentSlots    = "📅 Current free slots"
	textCurrentPrice    = "Current price list 💸"
	textAssetNotSetYet  = "%s: nothing uploaded yet."
	textReviewsSummary  = "📊 You have %d reviews\n⭐ Average rating: %s/5"
	textNoReviews       = "📝 You have no reviews yet"
	textNoReviewsShort  = "📝 No reviews yet"
	textNothingToDelete = "📝 No reviews to delete"

	textStatsHeader = "📊 *Review statistics:*\n\n📝 Total reviews: %d\n"
	textStatsAvg    = "⭐ Average rating: %s/5\n\n"
	textStatsRow    = "%s: %d (%s%%)\n"
	textReviewItem  = "*Review #%d*\n⭐ Rating: %d/5\n💬 %s\n👤 %s\n📅 %s\n────────────────────"
	textAnonymous   = "Anonymous"
	textUnknownDate = "Unknown"

	textConfirmClear = "⚠️ *WARNING!*\n\nYou are about to delete ALL reviews (%d).\nThis cannot be undone!\n\nAre you sure?"
	textCleared      = "✅ Deleted %d reviews\n📁 Backup created: %s"
	textBackupFailed = "❌ Could not create a backup, reviews were not deleted."
	textClearFailed  = "❌ Could not delete reviews, please try again later."
	textClearAborted = "❌ Deletion cancelled"

	textApology = "😔 Something went wrong, please try again."
)
