package encoder

// buildArgs assembles the full ffmpeg argument list for one pass.
// pass is 0 for single-pass CRF, 1 or 2 for the two-pass flow.
func buildArgs(input, output, res string, rec Recipe, sub Subtitle, pass int, passlogPrefix string) []string {
	args := []string{
		"-y",
		"-i", input,
		"-vf", filterChain(res, sub, rec),
		"-c:v", "libx264",
		"-preset", "veryfast",
	}

	switch pass {
	case 0:
		args = append(args, "-crf", rec.CRFFor(res))
		args = append(args, rec.audioArgs(res)...)
	case 1:
		args = append(args,
			"-b:v", rec.BitrateFor(res),
			"-pass", "1",
			"-passlogfile", passlogPrefix,
			"-an",
			"-f", "mp4",
		)
	case 2:
		args = append(args,
			"-b:v", rec.BitrateFor(res),
			"-pass", "2",
			"-passlogfile", passlogPrefix,
		)
		args = append(args, rec.audioArgs(res)...)
	}

	// Progress goes to stdout as key=value pairs; stderr stays for errors.
	args = append(args, "-progress", "pipe:1", "-nostats")

	if pass == 1 {
		args = append(args, nullSink)
	} else {
		args = append(args, output)
	}
	return args
}
