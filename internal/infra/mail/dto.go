package mail

type SearchFinishedEmailData struct {
	SearchID     string
	SearchName   string
	Succeeded    bool
	LeadsFound   int
	ErrorMessage string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	dialer Dialer
}
