package timeline

import "time"

// Window is a maximal run of consecutive dark samples. Start is the first dark
// instant; End is the first light instant after the run, or the final sampled
// instant when the run reaches the end of the span. First and Last are the
// half-open index range of the run within the scanned signal.
type Window struct {
	Start time.Time
	End   time.Time
	First int
	Last  int
}

// Len returns the number of dark samples in the window.
func (w Window) Len() int {
	return w.Last - w.First
}

// Detection is the result of scanning a solar signal for darkness.
type Detection struct {
	Windows []Window
	Dark    []Sample
}

// IsDark reports whether the Sun at elevation el is at or below threshold.
func IsDark(el, threshold float64) bool {
	return el <= threshold
}

// DetectWindows walks the signal once, opening a window on a light to dark
// transition and closing it on dark to light. A window still open at the
// last sample is closed there.
func DetectWindows(signal []Sample, threshold float64) Detection {
	var det Detection
	open := -1

	for i, s := range signal {
		dark := IsDark(s.SunElevation, threshold)
		if dark {
			det.Dark = append(det.Dark, s)
			if open < 0 {
				open = i
			}
			continue
		}
		if open >= 0 {
			det.Windows = append(det.Windows, Window{
				Start: signal[open].Time,
				End:   s.Time,
				First: open,
				Last:  i,
			})
			open = -1
		}
	}

	if open >= 0 {
		det.Windows = append(det.Windows, Window{
			Start: signal[open].Time,
			End:   signal[len(signal)-1].Time,
			First: open,
			Last:  len(signal),
		})
	}

	return det
}
