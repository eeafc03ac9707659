package migration

import "embed"

//go:embed resources/*.up.sql
var Resources embed.FS

const ResourcesDir = "resources"
