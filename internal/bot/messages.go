package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgHelp            = "Send a photo of a job site to get an estimate, or use /new."
	MsgPhotoDownload   = "Could not download the photo: %s"
	MsgCapturePrompt   = "Send a photo of the job site, or tap *Take Photo* to use the sample photo."
	MsgLoadingHeadline = "⏳ *Working on your estimate*"
	MsgFailedHeadline  = "❌ *Estimate failed*"
	MsgDetailCaption   = "Renovated view"
)

// =============================================================================
// Callback data
// =============================================================================

const callbackActionPrefix = "action:"
