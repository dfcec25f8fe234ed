package commands

// Command carriers for the workspace service. These are pure data objects:
// they hold validated input and carry no behavior beyond construction-time
// validation of their value types.

// CreateWorkspace provisions a new isolated realm plus its confidential
// client, roles and token mapper.
type CreateWorkspace struct {
	DomainName string `json:"domain_name"`
}

// CreateUser provisions an end-user account inside an existing workspace.
type CreateUser struct {
	RealmName string   `json:"realm_name"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     Email    `json:"email"`
	Password  Password `json:"password"`
}

// LoginUser exchanges end-user credentials for a token set.
type LoginUser struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	RealmName string `json:"realm_name"`
}
