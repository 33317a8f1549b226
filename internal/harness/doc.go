// Package harness runs criteria conformance scenarios.
//
// A scenario loads a schema registry, seeds an in-memory store, and runs a
// list of criteria cases against it, checking the translated SQL, the
// matched rows, and the errors raised while building criteria.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: users_by_role
//	description: "Users reachable through the roles pivot"
//	schemas: schemas.yaml      # relative to the scenario file
//	seed:
//	  - schema: users
//	    rows:
//	      - {id: u1, name: Alice, age: 30}
//	links:
//	  - {schema: users, relation: roles, local: u1, target: r1}
//	cases:
//	  - name: admins
//	    criteria:
//	      schema: users
//	      joins:
//	        - alias: roles
//	          criteria:
//	            where:
//	              logical_operator: AND
//	              items:
//	                - {field: name, operator: EQUALS, value: admin}
//	    expect:
//	      ids: [u1]
//
// Schemas may be given inline under inline_schemas instead of a path. A
// case reads its criteria document from criteria (inline YAML) or
// criteria_file (JSON, YAML or CUE).
//
// # Expectations
//
//   - ids: identifiers of the matched rows, in order
//   - count: number of matched rows
//   - sql / params: the translated statement and its bind parameters
//   - rows: matched rows, subset match per row, in order
//   - error: the criteria error code raised while building or running
//
// Times are written as {$time: "<RFC 3339>"}.
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory SQLite database with sequential
// row identifiers and a deterministic order sequence, so translated SQL and
// results are identical across runs and can be compared against golden
// files with RunWithGolden.
package harness
