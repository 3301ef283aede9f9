package models

// SchemaVersion is the migration version the column mappings in this package
// are written against. Adding a column means a new migration and a bump here.
const SchemaVersion uint = 1
