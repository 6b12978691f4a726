package accounts

type Access byte

const (
	AccessUndefined Access = 0
	AccessForbidden Access = 1
	AccessAllowed   Access = 2
)

func (a Access) merge(b Access) Access {
	switch {
	case a == AccessUndefined:
		return b
	case b == AccessUndefined:
		return a
	default:
		return b
	}
}

type PermissionName string

const (
	PermissionProfileEdit    PermissionName = "profile.edit"
	PermissionHistoryView    PermissionName = "profile.history.view"
	PermissionAdminDashboard PermissionName = "admin.dashboard"
)

type RoleId string

type Role struct {
	Id          RoleId
	Permissions map[PermissionName]bool
}

var (
	RoleIdMember   RoleId = "member"
	RoleIdReadOnly RoleId = "readonly"
	RoleIdAdmin    RoleId = "admin"
)

// Roles granted to freshly registered accounts.
var DefaultRoleIds = []RoleId{RoleIdMember}

var AllRoles map[RoleId]Role = mapRolesById(
	Role{
		Id: RoleIdAdmin,
		Permissions: map[PermissionName]bool{
			PermissionProfileEdit:    true,
			PermissionHistoryView:    true,
			PermissionAdminDashboard: true,
		},
	},
	Role{
		Id: RoleIdMember,
		Permissions: map[PermissionName]bool{
			PermissionProfileEdit: true,
			PermissionHistoryView: true,
		},
	},
	// Read-only accounts keep their session but cannot change their profile.
	// Listed after member in a user's roles it overrides the member grant.
	Role{
		Id: RoleIdReadOnly,
		Permissions: map[PermissionName]bool{
			PermissionProfileEdit: false,
		},
	},
)

func mapRolesById(roles ...Role) map[RoleId]Role {
	rolesMap := make(map[RoleId]Role)
	for _, role := range roles {
		if _, ok := rolesMap[role.Id]; ok {
			panic("Duplicated role id: `" + role.Id + "`!")
		}
		rolesMap[role.Id] = role
	}
	return rolesMap
}

// RolesByIds maps stored role ids to known roles, skipping unknown ids.
func RolesByIds(ids []RoleId) Roles {
	roles := make(Roles, 0, len(ids))
	for _, id := range ids {
		role, ok := AllRoles[id]
		if ok {
			roles = append(roles, role)
		}
	}
	return roles
}

func (role Role) Access(name PermissionName) Access {
	hasPermission, ok := role.Permissions[name]
	switch {
	case !ok:
		return AccessUndefined
	case hasPermission:
		return AccessAllowed
	default:
		return AccessForbidden
	}
}

type Roles []Role

func (roles Roles) Access(permission PermissionName) Access {
	access := AccessUndefined
	for _, role := range roles {
		access = access.merge(role.Access(permission))
	}
	return access
}

func (roles Roles) Ids() []RoleId {
	ids := make([]RoleId, len(roles))
	for i, role := range roles {
		ids[i] = role.Id
	}
	return ids
}
