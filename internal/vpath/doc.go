// Package vpath translates between the virtual path namespace exposed to
// clients and real filesystem locations.
//
// A virtual path starts with a mount name and never leaks the layout of the
// disks behind it. Both translation directions are pure functions over a
// mount table so callers can evaluate them against any configuration
// snapshot without additional locking.
package vpath
