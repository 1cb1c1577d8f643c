package dialect

import (
	"net/url"
	"path"
	"strings"
)

// TargetName extracts the database name from a connection string, so that it
// can be used as a display name for targets that weren't given one. It
// understands ADO-style "Key=Value;" strings (Database, Initial Catalog),
// libpq keyword/value strings (dbname), URLs and SQLite file DSNs. It returns
// an empty string if no name is found.
func TargetName(connString string) string {
	connString = strings.TrimSpace(connString)
	if connString == "" {
		return ""
	}

	if name := nameFromURL(connString); name != "" {
		return name
	}

	sep := " "
	if strings.Contains(connString, ";") {
		sep = ";"
	}
	for _, part := range strings.Split(connString, sep) {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "database", "initial catalog", "dbname":
			return strings.Trim(strings.TrimSpace(val), `'"`)
		}
	}

	return ""
}

func nameFromURL(connString string) string {
	if strings.HasPrefix(connString, "file:") {
		p, _, _ := strings.Cut(strings.TrimPrefix(connString, "file:"), "?")
		return strings.TrimSuffix(path.Base(p), path.Ext(p))
	}

	if !strings.Contains(connString, "://") {
		return ""
	}
	u, err := url.Parse(connString)
	if err != nil {
		return ""
	}
	if db := u.Query().Get("database"); db != "" {
		return db
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}

	return ""
}
