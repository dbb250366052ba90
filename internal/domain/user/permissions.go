package user

import "strings"

type Role string

const (
	RoleSuperAdmin     Role = "super-admin"
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleAccountOfficer Role = "account-officer"
	RoleCashier        Role = "cashier"
	RoleClient         Role = "client"
)

var allRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleAccountOfficer, RoleCashier, RoleClient}

// NormalizeRole lowercases r and accepts underscores or spaces as separators.
func NormalizeRole(r string) Role {
	s := strings.ToLower(strings.TrimSpace(r))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	return Role(s)
}

func (r Role) Valid() bool {
	for _, x := range allRoles {
		if r == x {
			return true
		}
	}
	return false
}

// In reports whether r is one of allowed after normalization.
func (r Role) In(allowed ...Role) bool {
	n := NormalizeRole(string(r))
	for _, a := range allowed {
		if n == a {
			return true
		}
	}
	return false
}

var (
	staff       = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleAccountOfficer, RoleCashier}
	managers    = []Role{RoleSuperAdmin, RoleAdmin, RoleManager}
	staffAdmins = []Role{RoleSuperAdmin, RoleAdmin}
)

// Staff lists every non-client role.
func Staff() []Role { return append([]Role(nil), staff...) }

// Managers lists the roles that may decide on loans and read reports.
func Managers() []Role { return append([]Role(nil), managers...) }

// StaffAdmins lists the roles that manage user accounts.
func StaffAdmins() []Role { return append([]Role(nil), staffAdmins...) }

func CanAccessLoans(r Role) bool { return r.In(allRoles...) }
func CanAccessPayments(r Role) bool { return r.In(allRoles...) }
func CanManageClients(r Role) bool { return r.In(staff...) }
func CanAccessCollectionSheets(r Role) bool {
	return r.In(staff...)
}
func CanAccessCashBlotter(r Role) bool {
	return r.In(RoleSuperAdmin, RoleAdmin, RoleManager, RoleCashier)
}
func CanAccessSLRDocuments(r Role) bool {
	return r.In(RoleSuperAdmin, RoleAdmin, RoleManager, RoleAccountOfficer)
}
func CanAccessReports(r Role) bool { return r.In(managers...) }
func CanAccessTransactions(r Role) bool { return r.In(managers...) }
func CanManageStaff(r Role) bool { return r.In(staffAdmins...) }
func CanViewLoanApprovals(r Role) bool { return r.In(managers...) }
func CanCreateLoan(r Role) bool {
	return r.In(RoleSuperAdmin, RoleAdmin, RoleManager, RoleAccountOfficer)
}
func CanRecordPayment(r Role) bool { return r.In(RoleCashier) }

// CanEditUserPassword: anyone may change their own password; super-admins may change
// anyone's; admins and managers may change anyone's except a super-admin's.
func CanEditUserPassword(actor, target Role, self bool) bool {
	if self {
		return true
	}
	actor, target = NormalizeRole(string(actor)), NormalizeRole(string(target))
	if actor == RoleSuperAdmin {
		return true
	}
	if target == RoleSuperAdmin {
		return false
	}
	return actor == RoleAdmin || actor == RoleManager
}
