package timeouts

// Reset restores every class to its default.
var Reset = setDefaults
