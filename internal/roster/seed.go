package roster

// DemoStaff is the starter roster: one admin, one repair technician and one
// installer.
func DemoStaff() []StaffMember {
	return []StaffMember{
		{ID: "admin1", Name: "Main Admin", Username: "admin", Phone: "0000 000 000", Email: "admin@arcticflow.ai", Role: RoleAdmin, TeamType: TeamRepair, Status: StatusAvailable, Active: true},
		{ID: "s1", Name: "Mike Tech", Username: "mike_repair", Phone: "0412 345 678", Email: "mike@arcticflow.ai", Role: RoleStaff, TeamType: TeamRepair, Status: StatusAvailable, Active: true, ARCLicense: "AU12345"},
		{ID: "s2", Name: "Sarah Build", Username: "sarah_install", Phone: "0422 999 000", Email: "sarah@arcticflow.ai", Role: RoleStaff, TeamType: TeamInstallation, Status: StatusAvailable, Active: true, ARCLicense: "AU67890"},
	}
}
