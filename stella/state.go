package stella

// State holds current brightness and fade target of every channel.
// Writes to invalid channels are ignored.
type State struct {
	Brightness [MaxChannels]uint8
	Fade       [MaxChannels]uint8
	count      int
}

func (s *State) Count() int {
	return s.count
}

func (s *State) valid(channel int) bool {
	return channel >= 0 && channel < s.count
}

func (s *State) SetBrightness(channel int, value uint8) {
	if s.valid(channel) {
		s.Brightness[channel] = value
	}
}

func (s *State) SetFade(channel int, value uint8) {
	if s.valid(channel) {
		s.Fade[channel] = value
	}
}

func (s *State) GetBrightness(channel int) uint8 {
	return s.Brightness[channel]
}

func (s *State) GetFade(channel int) uint8 {
	return s.Fade[channel]
}

func (s *State) fading(channel int) bool {
	return s.Brightness[channel] != s.Fade[channel]
}
