package credential

// AdminUsername is the reserved account with elevated access.
const AdminUsername = "admin"

// Credential is a single row of the credential table.
type Credential struct {
	Username     string
	Email        string
	PasswordHash string
}

// IsAdmin reports whether username is the reserved admin account.
func IsAdmin(username string) bool { return username == AdminUsername }
