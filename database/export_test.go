package database

// Insert seeds member rows for tests.
var Insert = (*MemberStore).insert
