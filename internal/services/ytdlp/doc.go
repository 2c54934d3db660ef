// Package ytdlp invokes the external download tool that fetches recording
// media to the output directory.
package ytdlp
