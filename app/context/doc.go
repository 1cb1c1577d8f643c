// Package context holds the objects shared by the app and cli packages.
//
// It only exists to break the import cycle between them. Otherwise these types
// would live in the app package.
package context
