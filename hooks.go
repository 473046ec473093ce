package dysession

import "context"

var defaultHooks = &StoreHooks{}

// StoreHooks provide callbacks which are invoked as DynamoDB requests are built, the operation
// name is available in the context via OperationName.
type StoreHooks struct {
	// RequestBuiltHook called with the request input, for example *dynamodb.GetItemInput, before it is sent
	RequestBuiltHook func(ctx context.Context, params interface{}) context.Context
}

// RequestBuilt invoke the hook if one is assigned
func (sh *StoreHooks) RequestBuilt(ctx context.Context, params interface{}) context.Context {
	if sh == nil || sh.RequestBuiltHook == nil {
		return ctx
	}

	return sh.RequestBuiltHook(ctx, params)
}
