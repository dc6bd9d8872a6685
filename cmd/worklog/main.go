// Command worklog is the daily case and follow-up tracker for the support
// desk: a local-first store with background sync to a shared table, file
// import/export, a drop-directory import daemon and a live dashboard.
package main

func main() {
	Execute()
}
