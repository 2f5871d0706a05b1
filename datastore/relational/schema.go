/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package relational

import "fmt"

// schema returns the idempotent DDL creating table for dialect d.
func schema(d Dialect, table string) []string {
	switch d {
	case Postgres:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	entitytype TEXT NOT NULL,
	entityid TEXT NOT NULL,
	entitycreated TIMESTAMPTZ NOT NULL DEFAULT now(),
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	PRIMARY KEY (entitytype, entityid)
)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q USING GIN (metadata jsonb_path_ops)`, table+"_metadata_gin", table),
		}
	default:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	entitytype TEXT NOT NULL,
	entityid TEXT NOT NULL,
	entitycreated DATETIME NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (entitytype, entityid)
)`, table),
		}
	}
}
