// Package services holds the error taxonomy and context annotations shared
// by the external tool clients under this directory.
package services
