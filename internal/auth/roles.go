package auth

// Role is the closed ladder of organizational roles. The workflow engine
// branches on roles, never on user IDs, so the set is deliberately small
// and fixed at compile time.
type Role string

const (
	RoleTopExecutive      Role = "top_executive"
	RoleManagingDirector  Role = "managing_director"
	RoleAdministrator     Role = "administrator"
	RoleHumanResources    Role = "human_resources"
	RoleDepartmentHead    Role = "department_head"
	RoleAssistantDeptHead Role = "assistant_department_head"
	RoleGeneralStaff      Role = "general_staff"
)

// AllRoles lists every valid role, highest authority first.
var AllRoles = []Role{
	RoleTopExecutive,
	RoleManagingDirector,
	RoleAdministrator,
	RoleHumanResources,
	RoleDepartmentHead,
	RoleAssistantDeptHead,
	RoleGeneralStaff,
}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Permission names. Per-user grants stored in user_permissions are
// unioned with the role defaults at check time.
const (
	PermissionAdmin           = "admin"
	PermissionSubmitLeave     = "submit_leave"
	PermissionRespondLeave    = "respond_leave"
	PermissionIssueTickets    = "issue_tickets"
	PermissionRespondTickets  = "respond_tickets"
	PermissionPurgeTickets    = "purge_tickets"
	PermissionManageHierarchy = "manage_hierarchy"
)

// SuperAuthorityRoles may override normal actor restrictions on tickets
// and are notified of contested tickets.
var SuperAuthorityRoles = map[Role]bool{
	RoleTopExecutive:     true,
	RoleManagingDirector: true,
}

// TerminalApprovalRoles finalize a leave request with no further
// escalation. Kept as a named set so the workflow and the resolver's own
// terminal rule cannot drift apart through inline comparisons.
var TerminalApprovalRoles = map[Role]bool{
	RoleManagingDirector: true,
	RoleAdministrator:    true,
}

// LeaveOverrideRoles may respond to a leave request they are not assigned
// to: the super authorities plus the administrator, who sits at the top of
// the approval chain.
var LeaveOverrideRoles = map[Role]bool{
	RoleTopExecutive:     true,
	RoleManagingDirector: true,
	RoleAdministrator:    true,
}

func (r Role) IsSuperAuthority() bool {
	return SuperAuthorityRoles[r]
}

func (r Role) IsTerminalApprover() bool {
	return TerminalApprovalRoles[r]
}

func (r Role) CanOverrideLeave() bool {
	return LeaveOverrideRoles[r]
}

// defaultRolePermissions maps each role to its default permission set.
// Built once at package init and never mutated afterwards; per-user custom
// permissions live in a separate set and are unioned at check time.
var defaultRolePermissions map[Role][]string

func init() {
	base := []string{PermissionSubmitLeave, PermissionRespondTickets}

	defaultRolePermissions = map[Role][]string{
		RoleGeneralStaff:      base,
		RoleAssistantDeptHead: base,
		RoleDepartmentHead:    append([]string{PermissionRespondLeave, PermissionIssueTickets}, base...),
		RoleHumanResources:    append([]string{PermissionRespondLeave, PermissionIssueTickets}, base...),
		RoleAdministrator:     append([]string{PermissionAdmin, PermissionRespondLeave, PermissionIssueTickets, PermissionManageHierarchy}, base...),
		RoleManagingDirector:  append([]string{PermissionRespondLeave, PermissionIssueTickets, PermissionPurgeTickets}, base...),
		RoleTopExecutive:      append([]string{PermissionRespondLeave, PermissionIssueTickets, PermissionPurgeTickets}, base...),
	}
}

// PermissionsForRole returns a copy of the role's default permission set.
func PermissionsForRole(r Role) []string {
	perms := defaultRolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// EffectivePermissions unions role defaults with per-user grants,
// de-duplicated, order preserved.
func EffectivePermissions(r Role, custom []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range append(PermissionsForRole(r), custom...) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
