// Package testdb provides migrated throwaway databases and fixture data
// for tests. It is imported only from _test.go files.
package testdb
