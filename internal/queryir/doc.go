// Package queryir provides the predicate intermediate representation used to
// filter record collections.
//
// API filter inputs (charge, pump, resource and complex-resource filters) are
// translated into this IR by package filter and then evaluated against a
// collection. Keeping the IR separate from evaluation lets the same predicate
// run against any record source.
//
// ARCHITECTURE:
//
//	[API filter input] -> [Query IR] -> [filter.Evaluate] -> records
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so evaluators can use
// exhaustive type switches.
//
//	switch p := pred.(type) {
//	case Equals:
//	case In:
//	case NotIn:
//	case And:
//	case Ref:
//	}
//
// SEMANTICS:
//
// Constraints combine with AND; members of a single In set combine with OR.
// An In or NotIn with an empty value set imposes no restriction. Ref is an
// indirect join: the referenced collection is scanned once per evaluation to
// build the eligible id set, and the predicate tests the record's field for
// membership in it.
//
// CRITICAL PATTERNS:
//
// IRValue Types Only
// All literal values in predicates are ir.IRValue, compared with ir.Equal.
//
// Live Records Only
// Every scan, including the secondary scan behind Ref, sees only records that
// are not soft-deleted.
package queryir
