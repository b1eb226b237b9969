package evaluator

import (
	"context"
	"encoding/json"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
)

type svm struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	State string `json:"state"`
	NFS   struct {
		Enabled bool `json:"enabled"`
	} `json:"nfs"`
	CIFS struct {
		Enabled bool `json:"enabled"`
	} `json:"cifs"`
}

// VserverIdentifier builds the stable identifier for one SVM's rule
// evaluation: "<svm-uuid>_<ruleKey>".
func VserverIdentifier(uuid, ruleKey string) string {
	return uuid + "_" + ruleKey
}

// EvaluateVserver fetches every SVM and applies the three boolean rule
// gates: SVM operational state, NFS service state, CIFS service state.
func EvaluateVserver(ctx context.Context, evalCtx EvalContext, rules matchconditions.VserverRules, history eventhistory.History) ([]alert.Intent, eventhistory.History, error) {
	body, err := evalCtx.Client.Get(ctx, "/api/svm/svms?fields=uuid,name,state,nfs,cifs")
	if err != nil {
		return nil, history, err
	}

	var resp struct {
		Records []svm `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, history, err
	}

	var alerts []alert.Intent
	observed := map[string]struct{}{}

	for _, s := range resp.Records {
		if rules.VserverState && s.State != "running" {
			appendVserverAlert(&alerts, &observed, &history, s.UUID, "vserverState", severityOrWarning(rules.VserverSeverity),
				"SVM "+s.Name+" is in state "+s.State)
		}
		if rules.NFSProtocolState && !s.NFS.Enabled {
			appendVserverAlert(&alerts, &observed, &history, s.UUID, "nfsProtocolState", severityOrWarning(rules.NFSSeverity),
				"NFS service on SVM "+s.Name+" is disabled")
		}
		if rules.CIFSProtocolState && !s.CIFS.Enabled {
			appendVserverAlert(&alerts, &observed, &history, s.UUID, "cifsProtocolState", severityOrWarning(rules.CIFSSeverity),
				"CIFS service on SVM "+s.Name+" is disabled")
		}
	}

	history = history.AgeOne(observed)
	return alerts, history, nil
}

func severityOrWarning(s alert.Severity) alert.Severity {
	if s == "" {
		return alert.Warning
	}
	return s
}

func appendVserverAlert(alerts *[]alert.Intent, observed *map[string]struct{}, history *eventhistory.History, uuid, ruleKey string, severity alert.Severity, message string) {
	id := VserverIdentifier(uuid, ruleKey)
	(*observed)[id] = struct{}{}
	isNew := !history.Exists(id)
	*history, _ = history.Observe(id, map[string]string{"message": message})
	if !isNew {
		return
	}
	*alerts = append(*alerts, alert.Intent{Severity: severity, Message: message, Identifier: id})
}
