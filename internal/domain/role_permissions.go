package domain

// =====================================================
// Role -> Permission tables
// =====================================================
//
// | Domain    | Admin | Owner                                   | Member                              |
// |-----------|-------|-----------------------------------------|-------------------------------------|
// | Workspace | All   | offices, workspace update/config, users | view, messages, files, create office |
// | Office    | All   | rooms, office update/config, users      | view, edit, messages, files         |
// | Room      | All   | room update/config, users, moderation   | view, edit, messages, files         |
//
// Guest, Banned and custom roles receive an empty set.

var workspaceOwnerPermissions = []Permission{
	PermissionViewContent, PermissionEditContent, PermissionEditMdx,
	PermissionSendMessages, PermissionReadMessages,
	PermissionUploadFiles, PermissionDownloadFiles,
	PermissionCreateOffice, PermissionDeleteOffice,
	PermissionUpdateWorkspace, PermissionEditWorkspaceConfig,
	PermissionAddUsers, PermissionRemoveUsers, PermissionInviteUsers,
	PermissionViewMembers, PermissionManageDomains,
}

var officeOwnerPermissions = []Permission{
	PermissionViewContent, PermissionEditContent, PermissionEditMdx,
	PermissionSendMessages, PermissionReadMessages, PermissionManageChat,
	PermissionUploadFiles, PermissionDownloadFiles,
	PermissionCreateRoom, PermissionDeleteRoom,
	PermissionUpdateOffice, PermissionEditOfficeConfig, PermissionDeleteOffice,
	PermissionAddUsers, PermissionRemoveUsers, PermissionInviteUsers,
	PermissionViewMembers,
}

var roomOwnerPermissions = []Permission{
	PermissionViewContent, PermissionEditContent, PermissionEditMdx,
	PermissionSendMessages, PermissionReadMessages, PermissionManageChat,
	PermissionDeleteMessages, PermissionPinMessages,
	PermissionUploadFiles, PermissionDownloadFiles,
	PermissionUpdateRoom, PermissionEditRoomConfig, PermissionDeleteRoom,
	PermissionAddUsers, PermissionRemoveUsers, PermissionInviteUsers,
	PermissionViewMembers,
}

var workspaceMemberPermissions = []Permission{
	PermissionViewContent,
	PermissionSendMessages, PermissionReadMessages,
	PermissionUploadFiles, PermissionDownloadFiles,
	PermissionCreateOffice,
}

var contentMemberPermissions = []Permission{
	PermissionViewContent, PermissionEditContent,
	PermissionSendMessages, PermissionReadMessages,
	PermissionUploadFiles, PermissionDownloadFiles,
}

// RolePermissions returns the permission set a role receives on a domain of
// the given type. It is pure and always returns a fresh set.
func RolePermissions(role Role, domainType DomainType) PermissionSet {
	set := NewPermissionSet()

	switch role.Kind {
	case RoleKindAdmin:
		if domainType.IsValid() {
			set.Add(PermissionAll)
		}
	case RoleKindOwner:
		switch domainType {
		case DomainTypeWorkspace:
			set.Add(workspaceOwnerPermissions...)
		case DomainTypeOffice:
			set.Add(officeOwnerPermissions...)
		case DomainTypeRoom:
			set.Add(roomOwnerPermissions...)
		}
	case RoleKindMember:
		switch domainType {
		case DomainTypeWorkspace:
			set.Add(workspaceMemberPermissions...)
		case DomainTypeOffice, DomainTypeRoom:
			set.Add(contentMemberPermissions...)
		}
	case RoleKindGuest, RoleKindBanned, RoleKindCustom:
	}

	return set
}
