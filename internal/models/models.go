package models

import "strings"

// NotFoundLogin is recorded when a commit signature is not linked to a GitHub account
const NotFoundLogin = "Not Found"

// AccountKind distinguishes user and organization repository listings
type AccountKind string

const (
	AccountUser AccountKind = "user"
	AccountOrg  AccountKind = "org"
)

// Account is a GitHub user or organization whose repositories are crawled
type Account struct {
	Name string
	Kind AccountKind
}

// Repository represents a GitHub repository as seen from the account that listed it
type Repository struct {
	Name        string  `json:"name" db:"name"`
	URL         string  `json:"url" db:"url"`
	Description *string `json:"description,omitempty" db:"description"`
	Owner       string  `json:"owner" db:"owner"`
}

// Signature is the author or committer block of a commit.
// Login is empty when GitHub could not link the email to an account.
type Signature struct {
	Login string
	Name  string
	Email string
}

// Commit is a single entry from a repository commit listing.
// Author or Committer is nil when the listing omitted that block or its email.
type Commit struct {
	SHA       string
	HTMLURL   string
	APIURL    string // listing page the commit was read from
	Author    *Signature
	Committer *Signature
}

// Identity is the (login, email, name) tuple used as the deduplication key
type Identity struct {
	Login string `db:"login"`
	Email string `db:"email"`
	Name  string `db:"name"`
}

// IdentityOf projects a signature to its identity tuple
func IdentityOf(sig *Signature) Identity {
	login := sig.Login
	if login == "" {
		login = NotFoundLogin
	}
	return Identity{Login: login, Email: sig.Email, Name: sig.Name}
}

// IsNoReply reports whether the email is a GitHub anonymized address
func (i Identity) IsNoReply() bool {
	return strings.Contains(i.Email, "noreply")
}

// Role classifies an identity relative to a repository owner
type Role string

const (
	RoleOwner       Role = "Owner"
	RoleContributor Role = "Contributor"
)

// RoleFor returns RoleOwner when the login or display name matches owner, ignoring case
func RoleFor(id Identity, owner string) Role {
	if strings.EqualFold(id.Login, owner) || strings.EqualFold(id.Name, owner) {
		return RoleOwner
	}
	return RoleContributor
}

// CommitRole says which signature of the commit an identity came from
type CommitRole string

const (
	CommitAuthor    CommitRole = "Author"
	CommitCommitter CommitRole = "Committer"
)

// Row is one line of the per-account identity CSV
type Row struct {
	RepoName  string     `db:"repo_name"`
	RepoURL   string     `db:"repo_url"`
	RepoOwner string     `db:"repo_owner"`
	Login     string     `db:"login"`
	Name      string     `db:"name"`
	Role      Role       `db:"role"`
	Type      CommitRole `db:"type"`
	Email     string     `db:"email"`
	CommitURL string     `db:"commit_url"`
	CommitAPI string     `db:"commit_api_url"`
}
