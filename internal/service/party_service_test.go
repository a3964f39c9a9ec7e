package service

import (
	"context"
	"errors"
	"testing"

	"backoffice/internal/model"
)

func newPartyFixture() (*fakePartyRepo, *fakeAuditRepo, PartyService) {
	partyRepo := newFakePartyRepo()
	auditRepo := &fakeAuditRepo{}
	svc := NewPartyService(partyRepo, auditRepo, fakeTxManager{})
	return partyRepo, auditRepo, svc
}

func TestCreatePartyReturnsExistingOnDuplicatePhone(t *testing.T) {
	partyRepo, auditRepo, svc := newPartyFixture()

	first, err := svc.Create(context.Background(), "", CreatePartyRequest{
		Name: "Karim aka", Type: model.PartyTypeSupplier, Phone: "+998901234567",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	second, err := svc.Create(context.Background(), "", CreatePartyRequest{
		Name: "Boshqa nom", Type: model.PartyTypeCustomer, Phone: "+998901234567",
	})
	if err != nil {
		t.Fatalf("duplicate Create() unexpected error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("duplicate phone created a new party: %s vs %s", second.ID, first.ID)
	}
	if second.Name != "Karim aka" {
		t.Errorf("existing party was renamed to %q", second.Name)
	}
	if len(partyRepo.parties) != 1 {
		t.Errorf("store holds %d parties, want 1", len(partyRepo.parties))
	}
	if len(auditRepo.logs) != 1 {
		t.Errorf("duplicate lookup wrote %d audit entries, want 1", len(auditRepo.logs))
	}
}

func TestDeletePartyRefusesOpenDebt(t *testing.T) {
	partyRepo, _, svc := newPartyFixture()
	indebted := seedParty(partyRepo, model.PartyTypeCustomer, "100000", "40000")

	err := svc.Delete(context.Background(), "", indebted.ID.String())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Delete() error = %v, want ErrValidation", err)
	}
	if _, err := partyRepo.FindByID(context.Background(), indebted.ID); err != nil {
		t.Errorf("indebted party was deleted")
	}

	settled := seedParty(partyRepo, model.PartyTypeCustomer, "100000", "100000")
	if err := svc.Delete(context.Background(), "", settled.ID.String()); err != nil {
		t.Fatalf("Delete() of settled party failed: %v", err)
	}
	if _, err := partyRepo.FindByID(context.Background(), settled.ID); err == nil {
		t.Errorf("settled party still present after delete")
	}
}

func TestUpdateParty(t *testing.T) {
	partyRepo, auditRepo, svc := newPartyFixture()
	party := seedParty(partyRepo, model.PartyTypeSupplier, "0", "0")

	updated, err := svc.Update(context.Background(), "", party.ID.String(), UpdatePartyRequest{
		Name: "  Yangilangan  ", Phone: "+998907654321", Address: "Chilonzor",
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.Name != "Yangilangan" || updated.Phone != "+998907654321" {
		t.Errorf("updated party = %+v", updated)
	}
	if len(auditRepo.logs) != 1 || auditRepo.logs[0].Action != model.ActionUpdateParty {
		t.Errorf("audit trail = %+v", auditRepo.logs)
	}

	if _, err := svc.Update(context.Background(), "", "not-a-uuid", UpdatePartyRequest{Name: "x", Phone: "y"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad id error = %v, want ErrValidation", err)
	}
}
