/*
Package course starts and owns the browsers the course lessons drive.

A Session wraps one WebDriver session together with the driver service and X
frame buffer started for it. Page objects borrow Session.Driver; the code that
called NewSession closes it, so every scenario gets a browser of its own.

Example usage:

	cfg, err := course.LoadConfig("course.yaml")
	if err != nil {
		return err
	}
	s, err := course.NewSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	u, err := s.URL("google", "/")
	if err != nil {
		return err
	}
	g := sites.NewGoogle(s.Driver(), u, s.PageOptions()...)
	if err := g.Open(ctx); err != nil {
		return err
	}
	results, err := g.Search(ctx, "Selenium WebDriver")

Configuration is read from an optional file, then from COURSE_* environment
variables (a .env file in the working directory is loaded first). The driver
binary is taken from Config.DriverPath, $BROWSER_DRIVER_PATH, the driver cache
in Config.DriverDir, a few well-known directories and $PATH, in that order. With
AutoInstall set, a missing driver is downloaded into the cache.
*/
package course
