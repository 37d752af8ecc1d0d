package registry

// Default returns the built-in category dataset for the campus library
// assistant. Used when no registry file is supplied; production deployments
// load a curated dataset instead.
func Default() *Registry {
	r, err := New(defaultCategories())
	if err != nil {
		// The built-in dataset is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}

func defaultCategories() []Category {
	return []Category{
		{
			ID:          "hours",
			AgentID:     "agent.hours",
			Description: "Opening hours and holiday schedules for library locations",
			Prototypes: []Prototype{
				{Text: "what time does the library open", Priority: PriorityHigh},
				{Text: "when do you close today", Priority: PriorityHigh},
				{Text: "are you open on sunday", Priority: PriorityHigh},
				{Text: "is the library open during spring break", Priority: PriorityMedium},
				{Text: "what are the hours for the science branch", Priority: PriorityMedium},
				{Text: "holiday opening times", Priority: PriorityMedium},
				{Text: "how late is the study hall open tonight", Priority: PriorityMedium},
				{Text: "when does the cafe in the library close", Priority: PriorityLow},
			},
		},
		{
			ID:          "room_booking",
			AgentID:     "agent.rooms",
			Description: "Reserving study rooms, group spaces, and media labs",
			Prototypes: []Prototype{
				{Text: "book a study room for tomorrow", Priority: PriorityHigh, ActionBased: true},
				{Text: "reserve a group room for four people", Priority: PriorityHigh, ActionBased: true},
				{Text: "i need a quiet room for two hours", Priority: PriorityMedium},
				{Text: "can i get a room with a whiteboard", Priority: PriorityMedium},
				{Text: "cancel my room reservation", Priority: PriorityMedium, ActionBased: true},
				{Text: "how do i book the media lab", Priority: PriorityMedium},
				{Text: "are there any rooms free this afternoon", Priority: PriorityMedium},
				{Text: "extend my study room booking", Priority: PriorityLow, ActionBased: true},
			},
		},
		{
			ID:          "equipment_checkout",
			AgentID:     "agent.equipment",
			Description: "Borrowing laptops, chargers, cameras, and other gear",
			Prototypes: []Prototype{
				{Text: "can i borrow a laptop", Priority: PriorityHigh, ActionBased: true},
				{Text: "check out a phone charger", Priority: PriorityHigh, ActionBased: true},
				{Text: "rent a camera for the weekend", Priority: PriorityHigh, ActionBased: true},
				{Text: "borrow a calculator for my exam", Priority: PriorityMedium, ActionBased: true},
				{Text: "do you lend out projectors", Priority: PriorityMedium, ActionBased: true},
				{Text: "how long can i keep a borrowed laptop", Priority: PriorityMedium},
				{Text: "return the tablet i checked out", Priority: PriorityMedium, ActionBased: true},
				{Text: "is there a fee for renting equipment", Priority: PriorityLow},
			},
		},
		{
			ID:          "research_guides",
			AgentID:     "agent.guides",
			Description: "Subject research guides, citation help, and database access",
			Prototypes: []Prototype{
				{Text: "where can i find sources for my biology paper", Priority: PriorityHigh},
				{Text: "is there a research guide for economics", Priority: PriorityHigh},
				{Text: "how do i cite a website in apa", Priority: PriorityHigh},
				{Text: "which databases cover 19th century newspapers", Priority: PriorityMedium},
				{Text: "help me get started on a literature review", Priority: PriorityMedium},
				{Text: "how do i access jstor from home", Priority: PriorityMedium},
				{Text: "i need peer reviewed articles about climate policy", Priority: PriorityMedium},
				{Text: "citation manager recommendations", Priority: PriorityLow},
			},
		},
		{
			ID:          "catalog_search",
			AgentID:     "agent.catalog",
			Description: "Finding and requesting specific books and materials",
			Prototypes: []Prototype{
				{Text: "do you have a copy of the great gatsby", Priority: PriorityHigh},
				{Text: "find books by toni morrison", Priority: PriorityHigh},
				{Text: "is this textbook available", Priority: PriorityHigh},
				{Text: "where is the call number qa76 shelved", Priority: PriorityMedium},
				{Text: "request a book from another campus", Priority: PriorityMedium, ActionBased: true},
				{Text: "put a hold on a book for me", Priority: PriorityMedium, ActionBased: true},
				{Text: "do you carry audiobooks", Priority: PriorityLow},
				{Text: "search for dvds about world war two", Priority: PriorityLow},
			},
		},
		{
			ID:          "librarian_referral",
			AgentID:     "agent.reference",
			Description: "Connecting with a librarian or subject specialist",
			Prototypes: []Prototype{
				{Text: "i want to talk to a librarian", Priority: PriorityHigh},
				{Text: "can i make an appointment with a subject specialist", Priority: PriorityHigh},
				{Text: "who can help me with my thesis research", Priority: PriorityMedium},
				{Text: "is there someone at the reference desk right now", Priority: PriorityMedium},
				{Text: "chat with library staff", Priority: PriorityMedium},
				{Text: "i have a question a person should answer", Priority: PriorityLow},
				{Text: "contact the archives department", Priority: PriorityLow},
				{Text: "schedule a consultation about data management", Priority: PriorityLow},
			},
		},
		{
			ID:          "out_of_scope",
			AgentID:     "agent.redirect",
			Description: "Requests the assistant does not handle and should redirect",
			Prototypes: []Prototype{
				{Text: "my computer is not working", Priority: PriorityHigh},
				{Text: "reset my university password", Priority: PriorityHigh},
				{Text: "do my homework for me", Priority: PriorityHigh},
				{Text: "write my essay", Priority: PriorityMedium},
				{Text: "the campus wifi is down", Priority: PriorityMedium},
				{Text: "when is tuition due", Priority: PriorityMedium},
				{Text: "fix the printer in my dorm", Priority: PriorityLow},
				{Text: "what classes should i take next semester", Priority: PriorityLow},
			},
		},
	}
}
