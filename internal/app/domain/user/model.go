package user

// User is a local identity provisioned from the identity provider. Auth0ID
// is the provider subject and is unique.
type User struct {
	ID      int64
	Name    string
	Auth0ID string
}
