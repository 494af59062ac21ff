package ledger

import "context"

type callerKey struct{}

// WithCaller returns a context carrying the identity of the account invoking
// ledger operations.
func WithCaller(ctx context.Context, caller AccountID) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom extracts the invoking account from ctx.
func CallerFrom(ctx context.Context) (AccountID, bool) {
	caller, ok := ctx.Value(callerKey{}).(AccountID)
	return caller, ok
}
