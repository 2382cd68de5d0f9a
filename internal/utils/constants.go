package utils

const (
	AppName = "natours"

	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"

	// Authentication
	TokenCookieName     = "jwt"
	LoggedOutCookieBody = "loggedout"
	BearerPrefix        = "Bearer "

	// Uploads
	UserPhotoSize    = 500
	UserPhotoQuality = 90
	MaxUploadBytes   = 5 << 20

	// Context keys
	ContextUserKey      = "currentUser"
	ContextRequestIDKey = "requestID"
	RequestIDHeader     = "X-Request-ID"

	MsgNoData          = "No data found"
	MsgNotAnImage      = "Not an image! Please upload only images."
	MsgTooManyRequests = "Too many requests from this IP, please try again in an hour!"
)
