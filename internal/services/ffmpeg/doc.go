// Package ffmpeg invokes the external merge tool on selected fragment pairs.
package ffmpeg
