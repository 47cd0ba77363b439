// Package logging provides the leveled, colored logger used by lockpass.
//
//	Logger.Infof()  // Shown with --verbose or --debug
//	Logger.Debugf() // Shown only with --debug
//	Logger.Warnf()  // Always shown
//	Logger.Errorf() // Always shown
//
// The vault core logs through a Logger it is given and stays silent by
// default. Secret values are never passed to a Logger.
package logging
