// Package utils provides common utility functions for the fixture builder.
// It includes helper functions for type conversion and ordering of the loosely
// typed values returned by table scans.
package utils
