package domain

// Role is the coarse permission class carried by an authenticated token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleSubject  Role = "subject"
)

// Actor is the authenticated caller of an operation. Operators carry a UserID;
// self-service callers carry the SubjectID they act for and no UserID.
type Actor struct {
	UserID    UserID
	Email     string
	Role      Role
	SubjectID SubjectID
}

// IsOperator reports whether the actor may act on other subjects' records.
func (a Actor) IsOperator() bool {
	return a.Role == RoleOperator || a.Role == RoleAdmin
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SelfService reports whether the actor is the subject acting on their own data.
func (a Actor) SelfService() bool {
	return a.Role == RoleSubject && !a.SubjectID.IsNil()
}

// ActorUserID returns the operator id, or nil for self-service actors. Audit
// entries use it so subject-initiated actions carry no operator id.
func (a Actor) ActorUserID() *UserID {
	if a.UserID.IsNil() || a.SelfService() {
		return nil
	}
	id := a.UserID
	return &id
}

// System is the actor used by background jobs.
var System = Actor{Email: "system@custodian", Role: RoleAdmin}
