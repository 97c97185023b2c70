package usercontext

// Locals keys shared by middlewares and controllers
const (
	KeyAccountContext = "ACCOUNT_CONTEXT"
	KeyAccountID      = "account_id"
	KeyIsAdmin        = "isAdmin"
)
