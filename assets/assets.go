package assets

import "embed"

// LookupFS embeds the default lookup tables (enum ID -> name).
//
//go:embed lookup-data.json
var LookupFS embed.FS

// LookupFile is the name of the default lookup table inside LookupFS.
const LookupFile = "lookup-data.json"
