// Package source provides script sources and locators for the migrate
// package.
//
// File based sources map a relative file path to a dotted script name under
// the source namespace, e.g. the file SqlFiles/0001.psql of the "crm" bundle
// becomes "crm.SqlFiles.0001.psql".
package source
