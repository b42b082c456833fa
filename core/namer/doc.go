// Package namer assigns stable, human-readable names to fixture records.
//
// Every table owns an independent naming scope. Within a scope the name of
// a record is resolved by the first matching strategy:
//
//  1. a naming function registered for the table with NameWith
//  2. a custom name registered for the record's table and id with Name
//  3. a name inferred from the first non-empty name field (unique_name,
//     display_name, name, title, username, login), suffixed with the number
//     of earlier names in the table that start with it
//  4. the table name followed by the zero-padded row counter (users_001)
//
// Names from strategies 2 to 4 are remembered for later collision counts;
// names returned by a naming function are used verbatim and not remembered.
//
// Resolution is deterministic: the same records in the same order always
// receive the same names.
//
// # Usage
//
//	n := namer.New(nil)
//	_ = n.Name("admin", namer.NewRef("users", 1))
//	users := n.Table("users")
//	for _, row := range rows {
//	    fixtures[users.Name(row)] = row
//	}
package namer
