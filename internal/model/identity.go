package model

type AuthMethod string

const (
	AuthMethodToken   AuthMethod = "token"
	AuthMethodSession AuthMethod = "session"
)

// Identity is the principal attached to an authenticated request.
type Identity struct {
	User        User
	Groups      []string
	Permissions map[string]struct{}
	Method      AuthMethod
	TokenKey    string
}

func NewIdentity(user User, groups []string, permissions []string, method AuthMethod) *Identity {
	set := make(map[string]struct{}, len(permissions))
	for _, codename := range permissions {
		set[codename] = struct{}{}
	}

	return &Identity{
		User:        user,
		Groups:      groups,
		Permissions: set,
		Method:      method,
	}
}

func (i *Identity) UserID() int64 {
	if i == nil {
		return 0
	}
	return i.User.ID
}

// HasPermission reports whether the identity holds codename. Superusers hold
// every permission.
func (i *Identity) HasPermission(codename string) bool {
	if i == nil || !i.User.IsActive {
		return false
	}
	if i.User.IsSuperuser {
		return true
	}

	_, ok := i.Permissions[codename]
	return ok
}

func (i *Identity) IsStaff() bool {
	return i != nil && i.User.IsActive && i.User.IsStaff
}

func (i *Identity) PermissionList() []string {
	if i == nil {
		return nil
	}

	out := make([]string, 0, len(i.Permissions))
	for _, codename := range []string{PermView, PermCreate, PermEdit, PermDelete} {
		if i.HasPermission(codename) {
			out = append(out, codename)
		}
	}
	return out
}
