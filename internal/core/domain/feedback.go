package domain

// FeedbackKey identifies a user-facing feedback message. The catalogue is
// closed: collaborators map keys to rendered text, the engine never emits
// free-form strings for authentication outcomes.
type FeedbackKey string

const (
	FeedbackEmptyCredential          FeedbackKey = "USERNAME_OR_PASSWORD_FIELD_EMPTY"
	FeedbackInvalidCredentials       FeedbackKey = "INVALID_CREDENTIALS"
	FeedbackTooManyAttempts          FeedbackKey = "TOO_MANY_ATTEMPTS"
	FeedbackAccountDeleted           FeedbackKey = "ACCOUNT_DELETED"
	FeedbackAccountSuspended         FeedbackKey = "ACCOUNT_SUSPENDED"
	FeedbackAccountNotActivated      FeedbackKey = "ACCOUNT_NOT_ACTIVATED_YET"
	FeedbackCookieInvalid            FeedbackKey = "COOKIE_INVALID"
	FeedbackCookieLoginSuccessful    FeedbackKey = "COOKIE_LOGIN_SUCCESSFUL"
	FeedbackCaptchaWrong             FeedbackKey = "CAPTCHA_WRONG"
	FeedbackUserDoesNotExist         FeedbackKey = "USER_DOES_NOT_EXIST"
	FeedbackResetTokenFail           FeedbackKey = "PASSWORD_RESET_TOKEN_FAIL"
	FeedbackResetMailSent            FeedbackKey = "PASSWORD_RESET_MAIL_SENDING_SUCCESSFUL"
	FeedbackResetMailFailed          FeedbackKey = "PASSWORD_RESET_MAIL_SENDING_ERROR"
	FeedbackResetCombinationNotFound FeedbackKey = "PASSWORD_RESET_COMBINATION_DOES_NOT_EXIST"
	FeedbackResetLinkValid           FeedbackKey = "PASSWORD_RESET_LINK_VALID"
	FeedbackResetLinkExpired         FeedbackKey = "PASSWORD_RESET_LINK_EXPIRED"
	FeedbackPasswordChanged          FeedbackKey = "PASSWORD_CHANGE_SUCCESSFUL"
	FeedbackPasswordChangeFailed     FeedbackKey = "PASSWORD_CHANGE_FAILED"
	FeedbackPasswordFieldEmpty       FeedbackKey = "PASSWORD_FIELD_EMPTY"
	FeedbackPasswordRepeatWrong      FeedbackKey = "PASSWORD_REPEAT_WRONG"
	FeedbackPasswordTooShort         FeedbackKey = "PASSWORD_TOO_SHORT"
	FeedbackUsernameTaken            FeedbackKey = "USERNAME_ALREADY_TAKEN"
	FeedbackEmailTaken               FeedbackKey = "USER_EMAIL_ALREADY_TAKEN"
	FeedbackUsernameBadPattern       FeedbackKey = "USERNAME_DOES_NOT_FIT_PATTERN"
	FeedbackEmailBadPattern          FeedbackKey = "EMAIL_DOES_NOT_FIT_PATTERN"
	FeedbackEmailRepeatWrong         FeedbackKey = "EMAIL_REPEAT_WRONG"
	FeedbackAccountCreated           FeedbackKey = "ACCOUNT_SUCCESSFULLY_CREATED"
	FeedbackVerificationMailFailed   FeedbackKey = "VERIFICATION_MAIL_SENDING_FAILED"
	FeedbackActivationSuccessful     FeedbackKey = "ACCOUNT_ACTIVATION_SUCCESSFUL"
	FeedbackActivationFailed         FeedbackKey = "ACCOUNT_ACTIVATION_FAILED"
	FeedbackCSRFInvalid              FeedbackKey = "CSRF_TOKEN_INVALID"
)
