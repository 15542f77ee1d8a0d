package errors

var (
	// Domain errors — used in usecase/repository
	ErrConversationNotFound = NotFound("conversation not found")
	ErrMessageNotFound      = NotFound("message not found")
	ErrNotParticipant       = Forbidden("user is not a participant in this conversation")
	ErrNotMessageSender     = Forbidden("only the original sender may modify this message")
	ErrNotEditable          = FailedPrecondition("only text messages can be edited")
	ErrSelfConversation     = InvalidArg("cannot open a conversation with yourself")
	ErrMissingUser          = InvalidArg("both participant ids are required")
)

func ErrStoreUnavailable(cause error) error {
	return Wrap(CodeUnavailable, "message store unavailable", cause)
}
