// Package styles holds the static style sheets served to the wallet UI.
package styles

// ModePopupCenter is the class set on the root element when the wallet runs
// as a centered popup window.
const ModePopupCenter = "mode__popup-center"

// ContentType is the media type of every style sheet in this package.
const ContentType = "text/css; charset=utf-8"

// PopupCenter returns the popup-center display mode styles. Every selector is
// scoped under ModePopupCenter so the sheet has no effect in other modes.
func PopupCenter() string {
	return popupCenterCSS
}

const popupCenterCSS = `/* ===== Popup Center Mode ===== */

.mode__popup-center,
.mode__popup-center body {
	height: unset !important;
	min-height: 552px !important;
	min-width: 440px !important;
	overflow-x: hidden;
}

/* Welcome page */
.mode__popup-center .welcome-page .content-image .image-large {
	display: none;
}

.mode__popup-center .welcome-page .content-text .title {
	width: 264px;
	font-size: 32px;
	line-height: 44px;
	margin-top: 24px;
}

.mode__popup-center .welcome-page .content-text .text {
	margin-bottom: 16px;
}
`
