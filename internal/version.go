package internal

// Version is the engipa release
const Version = "0.4.0"
