package testutil

import (
	"github.com/roach88/criteria/internal/criteria"
)

// UsersSchema describes a users table with scalar, set (comma separated),
// JSON array and JSON object columns.
func UsersSchema() criteria.Schema {
	return criteria.Schema{
		Name:       "users",
		Alias:      "u",
		Identifier: "uuid",
		Fields: []string{
			"uuid", "name", "email", "age", "score", "active",
			"labels", "tags", "profile", "created_at", "deleted_at",
		},
		Relations: []criteria.Relation{
			{
				Alias:         "posts",
				Cardinality:   criteria.OneToMany,
				Target:        "posts",
				LocalField:    "uuid",
				RelationField: "user_uuid",
			},
			{
				Alias:         "roles",
				Cardinality:   criteria.ManyToMany,
				Target:        "roles",
				PivotTable:    "user_roles",
				PivotLocal:    criteria.PivotReference{PivotField: "user_uuid", Reference: "uuid"},
				PivotRelation: criteria.PivotReference{PivotField: "role_uuid", Reference: "uuid"},
			},
		},
	}
}

// PostsSchema describes posts written by users.
func PostsSchema() criteria.Schema {
	return criteria.Schema{
		Name:       "posts",
		Identifier: "uuid",
		Fields:     []string{"uuid", "user_uuid", "title", "likes", "published_at"},
		Relations: []criteria.Relation{
			{
				Alias:         "publisher",
				Cardinality:   criteria.ManyToOne,
				Target:        "users",
				LocalField:    "user_uuid",
				RelationField: "uuid",
			},
		},
	}
}

// RolesSchema describes roles granted to users through user_roles.
func RolesSchema() criteria.Schema {
	return criteria.Schema{
		Name:       "roles",
		Identifier: "uuid",
		Fields:     []string{"uuid", "name"},
	}
}

// Registry returns users, posts and roles registered together.
func Registry() *criteria.Registry {
	return criteria.MustRegistry(UsersSchema(), PostsSchema(), RolesSchema())
}
