// Package audio plays the notification sound. Files are decoded once with
// beep (WAV, OGG or MP3) and played from memory at the configured volume.
package audio
