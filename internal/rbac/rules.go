package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"user": {
		"attempt:view-own",
	},
	"admin": {
		"*", // everything
	},
}
