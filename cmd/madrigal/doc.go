// Command madrigal manages the server's configuration file: mounts,
// users, settings, and one-shot imports from the legacy database format.
package main
