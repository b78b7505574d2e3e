package models

// Permission is one of the fixed set of coarse capabilities a role may hold.
type Permission string

const (
	PermissionOrganizationManage Permission = "organization.manage"
	PermissionRoleManage         Permission = "role.manage"
	PermissionMemberManage       Permission = "member.manage"
	PermissionInvitationManage   Permission = "invitation.manage"
	PermissionSettingManage      Permission = "setting.manage"
	PermissionMediaManage        Permission = "media.manage"
)

// Permissions returns every defined permission kind.
func Permissions() []Permission {
	return []Permission{
		PermissionOrganizationManage,
		PermissionRoleManage,
		PermissionMemberManage,
		PermissionInvitationManage,
		PermissionSettingManage,
		PermissionMediaManage,
	}
}

// Valid reports whether p is one of the defined permission kinds.
func (p Permission) Valid() bool {
	switch p {
	case PermissionOrganizationManage,
		PermissionRoleManage,
		PermissionMemberManage,
		PermissionInvitationManage,
		PermissionSettingManage,
		PermissionMediaManage:
		return true
	}
	return false
}

func (p Permission) String() string {
	return string(p)
}
