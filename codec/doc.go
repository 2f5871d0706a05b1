/*
Package codec provides the specialized field serializers used by flat-column backends.

A field that cannot be expressed as a single column (for example a list of team
permissions) is mapped to the empty column name in the table backend's column map and
a FieldCodec is registered for it instead:

	teams := &codec.IndexedList[TeamPermission]{
	    CountColumn: "teamsCount",
	    ItemColumns: []string{"teamid%d", "teamid%dp"},
	    Split: func(p TeamPermission) []string { return []string{p.TeamID, p.Permission} },
	    Join: func(parts []string) (TeamPermission, error) {
	        return TeamPermission{TeamID: parts[0], Permission: parts[1]}, nil
	    },
	}

Encoding writes exactly len(list) items and the count; decoding rebuilds the list from
the count and indexed columns only, failing with a data integrity error when an index is
missing rather than truncating silently.
*/
package codec
